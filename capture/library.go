package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"eisview/models"
)

const (
	fileSourcePrefix    = "file:"
	captureSourcePrefix = "capture:"
)

// Entry is one replayable source as listed on the replay page.
type Entry struct {
	Source string
	Title  string
}

// Library finds replay records in a directory of JSON files and, if set, a capture store.
type Library struct {
	Dir   string
	Store *SqliteStore
}

func (l *Library) Entries(ctx context.Context) ([]Entry, error) {
	var entries []Entry

	if l.Dir != "" {
		matches, err := filepath.Glob(filepath.Join(l.Dir, "*.json"))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		for _, match := range matches {
			name := filepath.Base(match)
			entries = append(entries, Entry{Source: fileSourcePrefix + name, Title: name})
		}
	}

	if l.Store != nil {
		sessions, err := l.Store.Sessions(ctx)
		if err != nil {
			return nil, err
		}
		for _, session := range sessions {
			entries = append(entries, Entry{
				Source: captureSourcePrefix + session.ID,
				Title: fmt.Sprintf("%s, %s (%s samples)",
					session.Device, humanize.Time(session.StartedAt), humanize.Comma(int64(session.Samples))),
			})
		}
	}
	return entries, nil
}

// Load resolves a source from Entries. Anything it can't find is a *models.DataAvailabilityError.
func (l *Library) Load(ctx context.Context, source string) (*models.ReplayRecord, error) {
	var (
		record *models.ReplayRecord
		err    error
	)
	switch {
	case strings.HasPrefix(source, fileSourcePrefix):
		name := filepath.Base(strings.TrimPrefix(source, fileSourcePrefix))
		if l.Dir == "" || name == "." || name == string(os.PathSeparator) {
			return nil, &models.DataAvailabilityError{Reason: "no replay directory"}
		}
		record, err = LoadRecordFile(filepath.Join(l.Dir, name))
	case strings.HasPrefix(source, captureSourcePrefix) && l.Store != nil:
		record, err = l.Store.LoadRecord(ctx, strings.TrimPrefix(source, captureSourcePrefix))
	default:
		return nil, &models.DataAvailabilityError{Reason: fmt.Sprintf("unknown source %q", source)}
	}
	if err != nil {
		return nil, err
	}

	log.Printf("loaded %s samples from %s", humanize.Comma(int64(record.Len())), source)
	return record, nil
}
