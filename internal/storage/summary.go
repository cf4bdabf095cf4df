package storage

import "encoding/json"

func encodeSummary(s Summary) ([]byte, error) {
	return json.Marshal(s)
}

func decodeSummary(data []byte) (Summary, error) {
	var s Summary
	err := json.Unmarshal(data, &s)
	return s, err
}
