package extract

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ReadPredictions decodes a JSON array of predictions
func ReadPredictions(r io.Reader) ([]Prediction, error) {
	var preds []Prediction
	if err := json.NewDecoder(r).Decode(&preds); err != nil {
		return nil, fmt.Errorf("failed to decode predictions: %w", err)
	}
	return preds, nil
}

// ReadTokens decodes a JSON array of OCR tokens
func ReadTokens(r io.Reader) ([]OCRToken, error) {
	var tokens []OCRToken
	if err := json.NewDecoder(r).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("failed to decode OCR tokens: %w", err)
	}
	return tokens, nil
}

// LoadPredictions reads a prediction list from a JSON file
func LoadPredictions(path string) ([]Prediction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadPredictions(f)
}

// LoadTokens reads an OCR token list from a JSON file
func LoadTokens(path string) ([]OCRToken, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTokens(f)
}

// WriteJSON pretty-prints v to w
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
