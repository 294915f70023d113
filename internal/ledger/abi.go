package ledger

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Minimal ABI codec for the DocumentHash contract. The contract surface is
// five view functions over string/address arguments and one event, so a full
// ABI package would be dead weight; only the shapes those functions use are
// implemented.

const wordSize = 32

// contract method and event signatures.
const (
	sigHashExists           = "hashExists(string)"
	sigGetDocumentInfo      = "getDocumentInfo(string)"
	sigGetDocumentByHash    = "getDocumentInfoByHash(string)"
	sigGetCreatorDocCount   = "getCreatorDocumentCount(address)"
	sigGetDocumentsByCreate = "getDocumentsByCreator(address)"
	sigDocumentStored       = "DocumentStored(address,string,uint256)"
)

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// selector returns the 4-byte function selector for a canonical signature.
func selector(signature string) []byte {
	return keccak256([]byte(signature))[:4]
}

// eventTopic returns the 32-byte topic hash for a canonical event signature.
func eventTopic(signature string) string {
	return "0x" + hex.EncodeToString(keccak256([]byte(signature)))
}

func padWord(data []byte) []byte {
	padded := make([]byte, wordSize)
	copy(padded[wordSize-len(data):], data)
	return padded
}

func uintWord(n int64) []byte {
	return padWord(big.NewInt(n).Bytes())
}

// encodeStringCall packs selector + a single dynamic string argument.
func encodeStringCall(signature, arg string) []byte {
	data := []byte(arg)
	padLen := (len(data) + wordSize - 1) / wordSize * wordSize

	out := make([]byte, 0, 4+2*wordSize+padLen)
	out = append(out, selector(signature)...)
	out = append(out, uintWord(wordSize)...) // offset of the string head
	out = append(out, uintWord(int64(len(data)))...)
	out = append(out, data...)
	out = append(out, make([]byte, padLen-len(data))...)
	return out
}

// encodeAddressCall packs selector + a single address argument.
func encodeAddressCall(signature, address string) ([]byte, error) {
	raw, err := parseAddress(address)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 4+wordSize)
	out = append(out, selector(signature)...)
	out = append(out, padWord(raw)...)
	return out, nil
}

func parseAddress(address string) ([]byte, error) {
	trimmed := strings.TrimPrefix(address, "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil || len(raw) != 20 {
		return nil, fmt.Errorf("invalid address %q", address)
	}
	return raw, nil
}

// abiReader walks return data word by word.
type abiReader struct {
	data []byte
}

func newABIReader(hexData string) (*abiReader, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(hexData, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode return data: %w", err)
	}
	return &abiReader{data: raw}, nil
}

func (r *abiReader) word(index int) ([]byte, error) {
	start := index * wordSize
	if start+wordSize > len(r.data) {
		return nil, fmt.Errorf("return data truncated at word %d", index)
	}
	return r.data[start : start+wordSize], nil
}

// wordInt decodes a word as an int64. Words past the int64 range are corrupt
// or hostile: no legitimate offset, length, count, or block number comes
// close, and truncating them yields negative slice bounds.
func wordInt(word []byte) (int64, error) {
	n := new(big.Int).SetBytes(word)
	if !n.IsInt64() {
		return 0, fmt.Errorf("word value %s out of range", n)
	}
	return n.Int64(), nil
}

func (r *abiReader) uint(index int) (int64, error) {
	word, err := r.word(index)
	if err != nil {
		return 0, err
	}
	n, err := wordInt(word)
	if err != nil {
		return 0, fmt.Errorf("word %d: %w", index, err)
	}
	return n, nil
}

func (r *abiReader) bool(index int) (bool, error) {
	n, err := r.uint(index)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

func (r *abiReader) address(index int) (string, error) {
	word, err := r.word(index)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(word[wordSize-20:]), nil
}

// stringAt reads a dynamic string whose head starts at byte offset. Bounds
// are compared by subtraction so oversized offsets and lengths cannot wrap
// past the checks.
func (r *abiReader) stringAt(offset int64) (string, error) {
	if offset < 0 || offset > int64(len(r.data))-wordSize {
		return "", fmt.Errorf("string offset %d out of range", offset)
	}
	length, err := wordInt(r.data[offset : offset+wordSize])
	if err != nil {
		return "", fmt.Errorf("string length at offset %d: %w", offset, err)
	}
	start := offset + wordSize
	if length > int64(len(r.data))-start {
		return "", fmt.Errorf("string data truncated at offset %d", offset)
	}
	return string(r.data[start : start+length]), nil
}

// stringHead resolves the string pointed to by the head word at index.
func (r *abiReader) stringHead(index int) (string, error) {
	offset, err := r.uint(index)
	if err != nil {
		return "", err
	}
	return r.stringAt(offset)
}

// stringSlice decodes a string[] return value.
func (r *abiReader) stringSlice() ([]string, error) {
	arrayOffset, err := r.uint(0)
	if err != nil {
		return nil, err
	}
	if arrayOffset > int64(len(r.data))-wordSize {
		return nil, fmt.Errorf("array offset %d out of range", arrayOffset)
	}
	count, err := wordInt(r.data[arrayOffset : arrayOffset+wordSize])
	if err != nil {
		return nil, fmt.Errorf("array length: %w", err)
	}

	// Element offsets are relative to the start of the element area, which
	// begins right after the length word. A count claiming more head words
	// than the remaining data can hold is rejected up front.
	base := arrayOffset + wordSize
	if count > (int64(len(r.data))-base)/wordSize {
		return nil, fmt.Errorf("array length %d out of range", count)
	}
	out := make([]string, 0, count)
	for i := int64(0); i < count; i++ {
		slot := base + i*wordSize
		elemOffset, err := wordInt(r.data[slot : slot+wordSize])
		if err != nil {
			return nil, fmt.Errorf("array element %d offset: %w", i, err)
		}
		if elemOffset > int64(len(r.data))-base {
			return nil, fmt.Errorf("array element %d out of range", i)
		}
		value, err := r.stringAt(base + elemOffset)
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, nil
}

// topicAddress extracts the address packed into an indexed event topic.
func topicAddress(topic string) (string, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(topic, "0x"))
	if err != nil || len(raw) != wordSize {
		return "", fmt.Errorf("invalid event topic %q", topic)
	}
	return "0x" + hex.EncodeToString(raw[wordSize-20:]), nil
}

// parseQuantity decodes a JSON-RPC hex quantity such as "0x1f4".
func parseQuantity(quantity string) (int64, error) {
	trimmed := strings.TrimPrefix(quantity, "0x")
	if trimmed == "" {
		return 0, fmt.Errorf("empty quantity")
	}
	n, ok := new(big.Int).SetString(trimmed, 16)
	if !ok || !n.IsInt64() {
		return 0, fmt.Errorf("invalid quantity %q", quantity)
	}
	return n.Int64(), nil
}

// formatQuantity encodes a block number as a JSON-RPC hex quantity.
func formatQuantity(n int64) string {
	return "0x" + big.NewInt(n).Text(16)
}
