/*
Package main implements the pinyin IME server and CLI application.

The engine segments typed pinyin into syllables, looks up acronym-indexed
buckets of a user-extensible lexicon, and returns ranked Chinese word and
phrase candidates. Committing a candidate fixes the matched tokens and
re-runs the search over the remainder; ending a session promotes chosen
entries and can learn new multi-word phrases.

# Usage

Start the JSON IPC server with a lexicon file:

	pinyinime -dict dict.txt

Run in CLI mode for interactive testing:

	pinyinime -c -dict dict.txt -limit 10

# IPC Protocol

The server communicates via newline-delimited JSON over stdin/stdout.

Send a search request:

	{"command": "search", "pinyin": "shurufa", "limit": 9}

Receive ranked candidates:

	{"candidates": [{"chinese": "输入法", "pinyin": "shu'ru'fa", "freq": 5}, {"chinese": "输入", "pinyin": "shu'ru", "freq": 10}], "count": 2, ...}

Select a candidate by flat index, then commit the session:

	{"command": "choose", "index": 0}
	{"command": "commit", "inc_freq": true, "learn": true}

# CLI Mode

CLI mode reads pinyin lines from stdin and prints numbered candidates.
`!N` chooses candidate N, `!!` commits the session, `!r` resets it, and
`!q` quits. A trailing `!w <path>` saves the lexicon.

# Configuration

Runtime configuration is managed through a TOML file:

	[ime]
	capacity = 128
	fork_limit = 64
	promote_delta = 1
	learn_phrases = true

	[dict]
	path = "dict.txt"

	[server]
	max_limit = 64
	default_limit = 24

The config file is automatically created with defaults if it doesn't exist.
*/
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/nspt/chinese-pinyin-ime/internal/logger"
	"github.com/nspt/chinese-pinyin-ime/pkg/config"
	"github.com/nspt/chinese-pinyin-ime/pkg/dict"
	"github.com/nspt/chinese-pinyin-ime/pkg/dictionary"
	"github.com/nspt/chinese-pinyin-ime/pkg/ime"
	"github.com/nspt/chinese-pinyin-ime/pkg/server"
)

const (
	Version = "0.3.0"
	AppName = "pinyinime"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main wires config, lexicon and engine together and hands control to the
// server or the CLI loop.
func main() {
	sigHandler()

	showVersion := flag.Bool("version", false, "Show current version")
	dictPath := flag.String("dict", "", "Lexicon file to load (text line format)")
	snapshotPath := flag.String("snapshot", "", "Binary lexicon snapshot to load")
	configPath := flag.String("config", "", "Custom config file path")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	limit := flag.Int("limit", 0, "Number of candidates to show")

	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", AppName, Version)
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	appLog := logger.Default(AppName)
	if *debugMode {
		appLog = logger.NewWithConfig(AppName, log.DebugLevel, false, true, log.TextFormatter)
	}

	cfg, activePath, _ := config.LoadConfigWithPriority(*configPath)
	if activePath != "" {
		appLog.Debugf("Active config: %s", activePath)
	}
	if *limit > 0 {
		cfg.Server.DefaultLimit = *limit
	}
	if *dictPath != "" {
		cfg.Dict.Path = *dictPath
	}
	if *snapshotPath != "" {
		cfg.Dict.Snapshot = *snapshotPath
	}

	lex := dict.NewLexicon()
	eng := ime.New(lex, ime.Options{
		Capacity:    cfg.IME.Capacity,
		ForkLimit:   cfg.IME.ForkLimit,
		Promote:     func(int) uint32 { return uint32(cfg.IME.PromoteDelta) },
		HistorySize: cfg.IME.HistorySize,
	})

	loadLexicon(eng, cfg, appLog)

	if *cliMode {
		runCLI(eng, cfg)
		return
	}

	srv := server.NewServer(eng, cfg)
	if err := srv.Start(); err != nil {
		appLog.Fatalf("Server stopped: %v", err)
	}
}

// loadLexicon fills the engine from the snapshot or the text lexicon,
// whichever is configured. A missing file is a warning, not a failure; the
// engine starts empty and learns from use.
func loadLexicon(eng *ime.IME, cfg *config.Config, lg *log.Logger) {
	if cfg.Dict.Snapshot != "" {
		file, err := os.Open(cfg.Dict.Snapshot)
		if err == nil {
			defer file.Close()
			count, err := dictionary.LoadBinary(file, eng.AddEntry)
			if err != nil {
				lg.Warnf("Loading snapshot %s: %v", cfg.Dict.Snapshot, err)
			}
			lg.Debugf("Loaded %d entries from snapshot %s", count, cfg.Dict.Snapshot)
			return
		}
		lg.Warnf("Open snapshot %s: %v", cfg.Dict.Snapshot, err)
	}
	if cfg.Dict.Path == "" {
		return
	}
	file, err := os.Open(cfg.Dict.Path)
	if err != nil {
		lg.Warnf("Open lexicon %s: %v", cfg.Dict.Path, err)
		return
	}
	defer file.Close()
	count, err := dictionary.LoadText(file, eng.AddEntry)
	if err != nil {
		lg.Warnf("Loading lexicon %s: %v", cfg.Dict.Path, err)
	}
	lg.Debugf("Loaded %d entries from %s", count, cfg.Dict.Path)
}

// runCLI is an interactive loop over stdin for testing and debugging.
func runCLI(eng *ime.IME, cfg *config.Config) {
	fmt.Printf("%s %s -- type pinyin, !N to choose, !! to commit, !r to reset, !q to quit\n", AppName, Version)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "!q":
			return
		case line == "!r":
			eng.ResetSearch()
			continue
		case line == "!!":
			eng.FinishSearch(true, cfg.IME.LearnPhrases)
			fmt.Println("committed")
			continue
		case strings.HasPrefix(line, "!w "):
			saveLexicon(eng, strings.TrimSpace(strings.TrimPrefix(line, "!w ")))
			continue
		case strings.HasPrefix(line, "!"):
			idx, err := strconv.Atoi(line[1:])
			if err != nil {
				fmt.Printf("bad command %q\n", line)
				continue
			}
			if _, err := eng.Choose(idx); err != nil {
				fmt.Printf("choose %d: %v\n", idx, err)
				continue
			}
			printCandidates(eng, cfg)
		default:
			eng.Search(line)
			printCandidates(eng, cfg)
		}
	}
}

func printCandidates(eng *ime.IME, cfg *config.Config) {
	cands := eng.Candidates()
	total := cands.Len()
	if total == 0 {
		fmt.Printf("[%s] no candidates\n", eng.Letters())
		return
	}
	limit := cfg.Server.DefaultLimit
	for i := 0; i < total && i < limit; i++ {
		e := cands.At(i)
		fmt.Printf("%2d. %s  (%s, %d)\n", i, e.Chinese(), e.Pinyin(), e.Freq())
	}
	if total > limit {
		fmt.Printf("... %d more\n", total-limit)
	}
}

func saveLexicon(eng *ime.IME, path string) {
	file, err := os.Create(path)
	if err != nil {
		fmt.Printf("save %s: %v\n", path, err)
		return
	}
	defer file.Close()
	if err := dictionary.SaveText(file, eng.Entries); err != nil {
		fmt.Printf("save %s: %v\n", path, err)
		return
	}
	fmt.Printf("saved %s\n", path)
}
