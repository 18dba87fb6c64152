package db

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ValentinKolb/perfDB/lib/db/codec"
	"github.com/ValentinKolb/perfDB/lib/db/util"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("perfdb")

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	commentPrefix = "#"                // lines starting with this prefix are ignored
	tempSuffix    = ".temp*"           // pattern suffix of the temp file used by rewrites
	fileMode      = fs.FileMode(0o644) // mode of newly created database files
)

// --------------------------------------------------------------------------
// Core TextDB structure
// --------------------------------------------------------------------------

// recordPositions is the byte range [begin, end) of a record line in the file,
// including the line terminator. begin < 0 means the record was not found.
type recordPositions struct {
	begin int64
	end   int64
}

var notFound = recordPositions{begin: -1, end: -1}

func (p recordPositions) found() bool {
	return p.begin >= 0 && p.end >= 0
}

// textDBImpl implements IPerfDB on top of a single flat text file.
//
// There is no in-memory state besides the file name: every operation opens
// the file, scans it, and closes it again.
type textDBImpl struct {
	filename string
}

// NewTextDB creates a database backed by the file at path.
// The file is created lazily by the first write.
//
// Thread-safety: NOT safe for concurrent writers. Two writers (goroutines or
// processes) working on the same file can interleave and lose updates or
// corrupt lines. Use syncdb.NewSyncDB to serialize access.
func NewTextDB(path string) IPerfDB {
	return &textDBImpl{
		filename: path,
	}
}

func (d *textDBImpl) Path() string {
	return d.filename
}

func (d *textDBImpl) Implementation() Implementation {
	return ImplText
}

// --------------------------------------------------------------------------
// Line scanning
// --------------------------------------------------------------------------

// scannedLine is one line of the database file without its terminator.
type scannedLine struct {
	text string
	pos  recordPositions
}

// scan calls fn for every line of the file until fn returns false.
// A missing file is reported as exists=false without error.
func (d *textDBImpl) scan(fn func(line scannedLine) bool) (exists bool, err error) {
	file, err := os.Open(d.filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, WrapError(RetCIOError, "file is unreadable", err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	var offset int64
	for {
		text, readErr := reader.ReadString(codec.LineTerminator)
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return true, WrapError(RetCIOError, "reading "+d.filename, readErr)
		}
		if len(text) == 0 {
			return true, nil
		}

		line := scannedLine{
			text: strings.TrimSuffix(text, string(codec.LineTerminator)),
			pos:  recordPositions{begin: offset, end: offset + int64(len(text))},
		}
		offset = line.pos.end

		if !fn(line) {
			return true, nil
		}
		if readErr != nil {
			return true, nil
		}
	}
}

// lineKind classifies a line of the database file
type lineKind int

const (
	lineBlank lineKind = iota
	lineComment
	lineMalformed
	lineRecord
)

// splitLine returns the key and contents of a record line.
func splitLine(text string) (kind lineKind, key, contents string) {
	switch {
	case text == "":
		return lineBlank, "", ""
	case strings.HasPrefix(text, commentPrefix):
		return lineComment, "", ""
	}
	key, contents, found := strings.Cut(text, string(codec.KeySeparator))
	if !found || key == "" {
		return lineMalformed, "", ""
	}
	return lineRecord, key, contents
}

// findRecord scans the file top to bottom for the first well-formed line
// with the given key. Lines that cannot be parsed are skipped.
func (d *textDBImpl) findRecord(key string) (*Record, recordPositions, error) {
	metricFinds.Inc()

	var (
		result *Record
		pos    = notFound
		nLine  int
	)

	_, err := d.scan(func(line scannedLine) bool {
		nLine++
		kind, currentKey, contents := splitLine(line.text)
		if kind == lineMalformed {
			metricMalformedLines.Inc()
			Logger.Errorf("%s:%d: ill-formed record: key not found", d.filename, nLine)
			return true
		}
		if kind != lineRecord || currentKey != key {
			return true
		}

		record := newRecord(key)
		if err := record.parseContents(contents); err != nil {
			metricMalformedLines.Inc()
			Logger.Errorf("%s:%d: error parsing payload under the key %s: %v", d.filename, nLine, key, err)
			return true
		}

		result, pos = record, line.pos
		return false
	})
	if err != nil {
		return nil, notFound, err
	}
	if result != nil {
		metricFindHits.Inc()
	}
	return result, pos, nil
}

// --------------------------------------------------------------------------
// Flush strategies
// --------------------------------------------------------------------------

// flush writes the record to the file. The strategy depends on pos:
//   - not found: the line is appended
//   - found, same length: the line is overwritten in place
//   - found, different length: the file is rebuilt in a temp file and renamed
//
// A record without pairs removes the line (or writes nothing if not found).
func (d *textDBImpl) flush(record *Record, pos recordPositions) error {
	var line string
	if record.Len() > 0 {
		var sb strings.Builder
		if err := record.writeContents(&sb); err != nil {
			metricFlushErrors.Inc()
			return err
		}
		line = sb.String()
	}

	var err error
	switch {
	case !pos.found() && line == "":
		return nil
	case !pos.found():
		err = d.appendLine(line)
	case int64(len(line)) == pos.end-pos.begin:
		err = d.overwriteInPlace(line, pos)
	default:
		err = d.rewrite(line, pos)
	}

	if err != nil {
		metricFlushErrors.Inc()
		Logger.Errorf("flush of key %s failed: %v", record.Key(), err)
	}
	return err
}

// appendLine appends the line at the end of the file, creating the file if
// needed. A missing terminator of the last line is added first.
func (d *textDBImpl) appendLine(line string) error {
	file, err := os.OpenFile(d.filename, os.O_RDWR|os.O_CREATE|os.O_APPEND, fileMode)
	if err != nil {
		return WrapError(RetCIOError, "file is unwritable", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return WrapError(RetCIOError, "stat "+d.filename, err)
	}
	if size := info.Size(); size > 0 {
		last := make([]byte, 1)
		if _, err := file.ReadAt(last, size-1); err != nil {
			return WrapError(RetCIOError, "reading "+d.filename, err)
		}
		if last[0] != codec.LineTerminator {
			line = string(codec.LineTerminator) + line
		}
	}

	if _, err := file.WriteString(line); err != nil {
		return WrapError(RetCIOError, "appending to "+d.filename, err)
	}
	if err := file.Close(); err != nil {
		return WrapError(RetCIOError, "closing "+d.filename, err)
	}
	metricFlushAppend.Inc()
	return nil
}

// overwriteInPlace replaces the bytes of an existing line of equal length.
func (d *textDBImpl) overwriteInPlace(line string, pos recordPositions) error {
	file, err := os.OpenFile(d.filename, os.O_WRONLY, fileMode)
	if err != nil {
		return WrapError(RetCIOError, "file is unwritable", err)
	}
	defer file.Close()

	if _, err := file.WriteAt([]byte(line), pos.begin); err != nil {
		return WrapError(RetCIOError, "writing "+d.filename, err)
	}
	if err := file.Close(); err != nil {
		return WrapError(RetCIOError, "closing "+d.filename, err)
	}
	metricFlushInPlace.Inc()
	return nil
}

// rewrite copies everything before pos.begin, the new line and everything
// after pos.end into a temp file next to the database, then renames it over
// the database file.
func (d *textDBImpl) rewrite(line string, pos recordPositions) (err error) {
	from, err := os.Open(d.filename)
	if err != nil {
		return WrapError(RetCIOError, "file is unreadable", err)
	}
	defer from.Close()

	info, err := from.Stat()
	if err != nil {
		return WrapError(RetCIOError, "stat "+d.filename, err)
	}

	to, err := os.CreateTemp(filepath.Dir(d.filename), filepath.Base(d.filename)+tempSuffix)
	if err != nil {
		return WrapError(RetCIOError, "temp file is unwritable", err)
	}
	tempName := to.Name()
	defer func() {
		if err != nil {
			_ = to.Close()
			_ = os.Remove(tempName)
		}
	}()

	if _, err = io.Copy(to, io.NewSectionReader(from, 0, pos.begin)); err != nil {
		return WrapError(RetCIOError, "copying head of "+d.filename, err)
	}
	if _, err = io.WriteString(to, line); err != nil {
		return WrapError(RetCIOError, "writing "+tempName, err)
	}
	if _, err = io.Copy(to, io.NewSectionReader(from, pos.end, info.Size()-pos.end)); err != nil {
		return WrapError(RetCIOError, "copying tail of "+d.filename, err)
	}
	if err = to.Chmod(info.Mode().Perm()); err != nil {
		return WrapError(RetCIOError, "chmod "+tempName, err)
	}
	if err = to.Close(); err != nil {
		return WrapError(RetCIOError, "closing "+tempName, err)
	}
	_ = from.Close()
	if err = os.Rename(tempName, d.filename); err != nil {
		return WrapError(RetCIOError, "replacing "+d.filename, err)
	}
	metricFlushRewrite.Inc()
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db.IPerfDB)
// --------------------------------------------------------------------------

func (d *textDBImpl) FindRecord(problemConfig codec.ISerializable) (*Record, bool, error) {
	return d.FindRecordByKey(codec.SerializeToString(problemConfig))
}

func (d *textDBImpl) FindRecordByKey(key string) (*Record, bool, error) {
	record, _, err := d.findRecord(key)
	if err != nil {
		return nil, false, err
	}
	return record, record != nil, nil
}

func (d *textDBImpl) StoreRecord(record *Record) error {
	metricStores.Inc()
	_, pos, err := d.findRecord(record.Key())
	if err != nil {
		return err
	}
	return d.flush(record, pos)
}

func (d *textDBImpl) UpdateRecord(record *Record) error {
	metricUpdates.Inc()
	old, pos, err := d.findRecord(record.Key())
	if err != nil {
		return err
	}

	// the caller's pairs win, stored pairs fill in the missing ids
	merged := record.Clone()
	merged.Merge(old)
	if err := d.flush(merged, pos); err != nil {
		return err
	}
	record.replaceContents(merged)
	return nil
}

func (d *textDBImpl) Remove(problemConfig codec.ISerializable, id string) (bool, error) {
	record, pos, err := d.findRecord(codec.SerializeToString(problemConfig))
	if err != nil || record == nil {
		return false, err
	}
	if !record.erase(id) {
		return false, nil
	}
	if err := d.flush(record, pos); err != nil {
		return false, err
	}
	return true, nil
}

func (d *textDBImpl) RemoveRecord(problemConfig codec.ISerializable) (bool, error) {
	key := codec.SerializeToString(problemConfig)
	_, pos, err := d.findRecord(key)
	if err != nil || !pos.found() {
		return false, err
	}
	if err := d.flush(newRecord(key), pos); err != nil {
		return false, err
	}
	return true, nil
}

func (d *textDBImpl) ForEach(fn func(record *Record) bool) error {
	_, err := d.scan(func(line scannedLine) bool {
		kind, key, contents := splitLine(line.text)
		if kind != lineRecord {
			return true
		}
		record := newRecord(key)
		if err := record.parseContents(contents); err != nil {
			return true
		}
		return fn(record)
	})
	return err
}

func (d *textDBImpl) Stats() (FileStats, error) {
	stats := FileStats{
		Path:      d.filename,
		DbType:    ImplText,
		LineSizes: util.NewLineHistogram(),
	}

	seen := make(map[string]struct{})
	var entriesPerRecord []float64

	_, err := d.scan(func(line scannedLine) bool {
		stats.Lines++
		stats.SizeBytes = line.pos.end
		stats.LineSizes.Add(int(line.pos.end - line.pos.begin))

		kind, key, contents := splitLine(line.text)
		switch kind {
		case lineBlank:
			stats.BlankLines++
			return true
		case lineComment:
			stats.Comments++
			return true
		case lineMalformed:
			stats.MalformedLines++
			return true
		}

		record := newRecord(key)
		if err := record.parseContents(contents); err != nil {
			stats.MalformedLines++
			return true
		}
		if _, dup := seen[key]; dup {
			stats.DuplicateKeys++
		}
		seen[key] = struct{}{}
		stats.Records++
		stats.Entries += record.Len()
		entriesPerRecord = append(entriesPerRecord, float64(record.Len()))
		return true
	})
	if err != nil {
		return FileStats{}, err
	}

	stats.EntriesPerRecord = util.NewStats(entriesPerRecord)
	return stats, nil
}
