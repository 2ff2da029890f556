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

package main

import (
	"encoding/hex"
	"log"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"github.com/xtaci/splitcap/capture"
	"github.com/xtaci/splitcap/classify"
	"github.com/xtaci/splitcap/config"
	"github.com/xtaci/splitcap/engine"
	"github.com/xtaci/splitcap/ring"
)

// VERSION is populated via build flags when packaging official binaries.
var VERSION = "SELFBUILD"

func main() {
	if VERSION == "SELFBUILD" {
		// Enable timestamps + file:line to simplify debugging self-built binaries.
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	myApp := cli.NewApp()
	myApp.Name = "splitcap"
	myApp.Usage = "flow-preserving packet capture splitter"
	myApp.Version = VERSION
	myApp.ArgsUsage = "<status-output> <input-capture> <output-capture-1> [<output-capture-2> ...]"
	myApp.Flags = []cli.Flag{
		cli.IntFlag{
			Name:  "ring-capacity",
			Value: ring.DefaultCapacity,
			Usage: "per-shard ring buffer capacity, in frames",
		},
		cli.IntFlag{
			Name:  "status-interval",
			Value: 100,
			Usage: "status snapshot interval, in milliseconds",
		},
		cli.StringFlag{
			Name:  "hash-key",
			Value: "",
			Usage: "32 hex characters (16 bytes): SipHash-2-4 key used for shard classification, default all-zero",
		},
		cli.StringFlag{
			Name:  "log",
			Value: "",
			Usage: "specify a log file to output, default goes to stderr",
		},
		cli.BoolFlag{
			Name:  "quiet",
			Usage: "has no effect: no per-shard open/close log lines are written",
		},
		cli.StringFlag{
			Name:  "c",
			Value: "", // when set, the JSON file must exist on disk
			Usage: "config from json file, which will override the command from shell",
		},
	}
	myApp.Action = run
	if err := myApp.Run(os.Args); err != nil {
		log.Printf("%+v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg := config.Config{
		RingCapacity:   c.Int("ring-capacity"),
		StatusPeriodMS: c.Int("status-interval"),
		HashKey:        c.String("hash-key"),
		Log:            c.String("log"),
		Quiet:          c.Bool("quiet"),
	}

	args := c.Args()
	if len(args) < 3 {
		return errors.New("usage: splitcap <status-output> <input-capture> <output-capture-1> [<output-capture-2> ...]")
	}
	cfg.StatusPath = args[0]
	cfg.InputPath = args[1]
	cfg.OutputPaths = append([]string(nil), args[2:]...)

	if path := c.String("c"); path != "" {
		if err := config.ParseJSONConfig(&cfg, path); err != nil {
			return errors.Wrapf(err, "load config %q", path)
		}
	}

	if cfg.Log != "" {
		f, err := os.OpenFile(cfg.Log, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return errors.Wrapf(err, "open log file %q", cfg.Log)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	log.Println("status output:", cfg.StatusPath)
	log.Println("input capture:", cfg.InputPath)
	log.Println("output captures:", cfg.OutputPaths)
	log.Println("ring capacity:", cfg.RingCapacity)
	log.Println("status interval(ms):", cfg.StatusPeriodMS)

	key, err := parseHashKey(cfg.HashKey)
	if err != nil {
		return err
	}

	reader, err := capture.OpenRead(cfg.InputPath)
	if err != nil {
		return errors.Wrapf(err, "open input capture %q", cfg.InputPath)
	}
	defer reader.Close()

	engCfg := engine.Config{
		RingCapacity:   cfg.RingCapacity,
		StatusInterval: time.Duration(cfg.StatusPeriodMS) * time.Millisecond,
		HashKey:        key,
	}

	if err := engine.Split(reader, cfg.OutputPaths, cfg.StatusPath, engCfg); err != nil {
		return err
	}

	log.Println("done")
	return nil
}

// parseHashKey decodes a 32-character hex string into a 16-byte
// SipHash-2-4 key. An empty string keeps classify.ZeroKey, the
// tuning-only default.
func parseHashKey(hexKey string) (classify.Key, error) {
	if hexKey == "" {
		return classify.ZeroKey, nil
	}
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return classify.Key{}, errors.Wrap(err, "decode hash-key")
	}
	if len(raw) != 16 {
		color.Red("hash-key warning: decoded to %d bytes, expected 16", len(raw))
		var padded [16]byte
		copy(padded[:], raw)
		return classify.KeyFromBytes(padded), nil
	}
	var key [16]byte
	copy(key[:], raw)
	return classify.KeyFromBytes(key), nil
}
