// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package config holds splitcap's Config struct, generalizing
// server/config.go's JSON-file override pattern.
package config

import (
	"encoding/json"
	"os"
)

// Config collects every tunable the CLI exposes, overridable from a JSON
// file via ParseJSONConfig exactly as server/config.go's Config is.
type Config struct {
	StatusPath     string   `json:"status"`
	InputPath      string   `json:"input"`
	OutputPaths    []string `json:"outputs"`
	RingCapacity   int      `json:"ring-capacity"`
	StatusPeriodMS int      `json:"status-period-ms"`
	HashKey        string   `json:"hash-key"` // hex-encoded 16 bytes
	Log            string   `json:"log"`
	Quiet          bool     `json:"quiet"`
}

// ParseJSONConfig decodes the JSON document at path into cfg, overriding
// any fields it sets. It is the direct generalization of
// server/config.go's parseJSONConfig.
func ParseJSONConfig(cfg *Config, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(cfg)
}
