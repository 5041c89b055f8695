package watcher

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/blackwell-systems/rewind/internal/config"
	"github.com/blackwell-systems/rewind/internal/store"
	"github.com/blackwell-systems/rewind/internal/timeline"
)

const maxUsageLogLinesPerPass = 10_000

// LockName is the advisory lock file, next to the usage log, held for the
// whole of a pass.
const LockName = "usage.lock"

// Paths locates the usage log and its offset file.
type Paths struct {
	Log    string
	Offset string
}

// PassResult summarizes one ingest pass.
type PassResult struct {
	Ingested  int
	Malformed int
	Offset    int64

	// More is set when the pass stopped at the line cap and the log may
	// hold further lines.
	More bool
}

// ProcessUsageLog ingests the usage log lines appended since the saved
// offset. Log format (one entry per line, written by cmd/rewind-hook):
//
//	<unix_ms>,<kind>,<package>
//
// Example:
//
//	1709012345678,resumed,firefox
//
// Package names are rewritten through aliases. Complete lines are inserted
// in one transaction and the offset only advances after commit. A trailing
// line without a newline is left for the next pass. A missing log is not an
// error.
//
// Passes from different processes are serialized through an flock on
// LockName, so two ingesters never read the same offset.
func ProcessUsageLog(st *store.Store, paths Paths, aliases config.Aliases, logger zerolog.Logger) (PassResult, error) {
	var res PassResult

	if _, err := os.Stat(paths.Log); errors.Is(err, os.ErrNotExist) {
		return res, nil
	}

	lock := flock.New(filepath.Join(filepath.Dir(paths.Log), LockName))
	if err := lock.Lock(); err != nil {
		return res, fmt.Errorf("failed to lock usage log: %w", err)
	}
	defer lock.Unlock() //nolint:errcheck

	info, err := os.Stat(paths.Log)
	if err != nil {
		return res, fmt.Errorf("failed to stat usage log: %w", err)
	}

	offset, err := readOffset(paths.Offset)
	if err != nil {
		return res, fmt.Errorf("failed to read offset: %w", err)
	}
	if offset > info.Size() {
		// The log was truncated or replaced.
		logger.Warn().Int64("offset", offset).Int64("size", info.Size()).Msg("usage log shrank, starting over")
		offset = 0
	}
	res.Offset = offset

	f, err := os.Open(paths.Log)
	if err != nil {
		return res, fmt.Errorf("failed to open usage log: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return res, fmt.Errorf("failed to seek usage log: %w", err)
	}

	var events []timeline.RawEvent
	consumed := offset
	lines := 0

	r := bufio.NewReader(f)
	for lines < maxUsageLogLinesPerPass {
		line, err := r.ReadString('\n')
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, fmt.Errorf("failed to read usage log: %w", err)
		}
		consumed += int64(len(line))
		lines++

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		ev, ok := parseUsageLine(line)
		if !ok {
			res.Malformed++
			logger.Debug().Str("line", line).Msg("skipping malformed usage line")
			continue
		}
		ev.Package = aliases.Canonical(ev.Package)
		events = append(events, ev)
	}

	if err := st.InsertEvents(events); err != nil {
		return res, err
	}

	if consumed != offset {
		if err := writeOffsetAtomic(paths.Offset, consumed); err != nil {
			return res, err
		}
	}

	res.Ingested = len(events)
	res.Offset = consumed
	res.More = lines == maxUsageLogLinesPerPass
	return res, nil
}

// DrainUsageLog runs passes until the log is consumed. The result sums the
// passes; Offset is the final one.
func DrainUsageLog(st *store.Store, paths Paths, aliases config.Aliases, logger zerolog.Logger) (PassResult, error) {
	var total PassResult
	for {
		res, err := ProcessUsageLog(st, paths, aliases, logger)
		total.Ingested += res.Ingested
		total.Malformed += res.Malformed
		total.Offset = res.Offset
		if err != nil {
			return total, err
		}
		if !res.More {
			return total, nil
		}
	}
}

// parseUsageLine parses "<unix_ms>,<kind>,<package>". Unknown kinds are
// kept as timeline.KindOther.
func parseUsageLine(line string) (timeline.RawEvent, bool) {
	parts := strings.SplitN(line, ",", 3)
	if len(parts) != 3 {
		return timeline.RawEvent{}, false
	}

	ms, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || ms <= 0 {
		return timeline.RawEvent{}, false
	}

	kind := strings.TrimSpace(parts[1])
	pkg := strings.TrimSpace(parts[2])
	if kind == "" || pkg == "" {
		return timeline.RawEvent{}, false
	}

	return timeline.RawEvent{
		Package:   pkg,
		Timestamp: time.UnixMilli(ms),
		Kind:      timeline.ParseKind(kind),
	}, true
}

// FormatUsageLine renders an event in the usage log format.
func FormatUsageLine(ev timeline.RawEvent) string {
	return strconv.FormatInt(ev.Timestamp.UnixMilli(), 10) + "," + string(ev.Kind) + "," + ev.Package + "\n"
}

// ReadOffset returns the processed byte offset, 0 when the offset file
// does not exist.
func ReadOffset(path string) (int64, error) {
	return readOffset(path)
}

func readOffset(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return 0, nil
	}
	offset, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse offset %q: %w", s, err)
	}
	if offset < 0 {
		return 0, nil
	}
	return offset, nil
}

// writeOffsetAtomic replaces the offset file through a rename of a unique
// temp file in the same directory.
func writeOffsetAtomic(path string, offset int64) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".usage.offset-*")
	if err != nil {
		return fmt.Errorf("create temp offset file: %w", err)
	}
	tmp := f.Name()

	if _, err := f.WriteString(strconv.FormatInt(offset, 10)); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp offset file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp offset file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename offset file: %w", err)
	}
	return nil
}
