// Package bytephase provides a byte-level BPE tokenizer with trie-based greedy encoding.
//
// # Quick Start
//
//	tok, err := bytephase.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tok.Close()
//
//	if err := tok.Train(ctx, "corpus.txt", 2048); err != nil {
//	    log.Fatal(err)
//	}
//	ids, err := tok.Encode("Hello world.", bytephase.ModeInference)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	text, err := tok.Decode(ids)
//
// # Thread Safety
//
// Tokenizer is safe for concurrent use. Encoding runs on an internal pool of
// sessions sharing one trie, configurable via WithPoolSize. Train and Load wait
// for in-flight encodes and swap the vocabulary atomically.
//
// # Vocabulary Files
//
// Save and Load pick the format from the file extension: ".bpe" text,
// ".json", ".bpeb" protobuf wire and ".cbor". SaveDebug writes a
// human-readable listing that cannot be loaded back.
package bytephase
