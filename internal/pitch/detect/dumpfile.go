package detect

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

// DumpFile adapts a recorded detection dump to the Detector and FrameSource
// interfaces. The format is JSON lines: a header record followed by one
// record per frame that had detections. Frames absent from the dump yield
// no detections.
//
//	{"fps": 30, "width": 1920, "height": 1080, "total_frames": 900}
//	{"frame": 0, "detections": [{"box": {...}, "score": 0.91, "class_id": 0}]}
//
// Dumps are produced by the upstream inference stage; this adapter lets the
// analysis core run without any model runtime attached.
type DumpFile struct {
	meta   VideoMetadata
	frames map[int][]Detection
	cursor int
}

type dumpHeader struct {
	FPS         float64 `json:"fps"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	TotalFrames int     `json:"total_frames"`
}

type dumpRecord struct {
	Frame      int         `json:"frame"`
	Detections []Detection `json:"detections"`
}

// OpenDumpFile reads and validates a detection dump.
func OpenDumpFile(path string) (*DumpFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open detection dump: %w", err)
	}
	defer f.Close()
	return ReadDump(f, path)
}

// ReadDump parses a detection dump from a reader. The path is recorded in
// the metadata for error messages only.
func ReadDump(r io.Reader, path string) (*DumpFile, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1<<20), 16<<20)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read dump header: %w", err)
		}
		return nil, fmt.Errorf("detection dump %s is empty", path)
	}

	var hdr dumpHeader
	if err := json.Unmarshal(scanner.Bytes(), &hdr); err != nil {
		return nil, fmt.Errorf("invalid dump header: %w", err)
	}
	if hdr.FPS <= 0 || hdr.TotalFrames <= 0 {
		return nil, fmt.Errorf("invalid dump header: fps=%f total_frames=%d", hdr.FPS, hdr.TotalFrames)
	}

	d := &DumpFile{
		meta: VideoMetadata{
			Path:            path,
			Width:           hdr.Width,
			Height:          hdr.Height,
			FPS:             hdr.FPS,
			TotalFrames:     hdr.TotalFrames,
			DurationSeconds: float64(hdr.TotalFrames) / hdr.FPS,
		},
		frames: make(map[int][]Detection),
	}

	line := 1
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec dumpRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("invalid dump record at line %d: %w", line, err)
		}
		if rec.Frame < 0 || rec.Frame >= hdr.TotalFrames {
			return nil, fmt.Errorf("dump record at line %d references frame %d outside [0, %d)",
				line, rec.Frame, hdr.TotalFrames)
		}
		d.frames[rec.Frame] = append(d.frames[rec.Frame], rec.Detections...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read detection dump: %w", err)
	}

	return d, nil
}

// Metadata implements FrameSource.
func (d *DumpFile) Metadata() (VideoMetadata, error) { return d.meta, nil }

// Seek implements FrameSource.
func (d *DumpFile) Seek(frame int) error {
	if frame < 0 || frame > d.meta.TotalFrames {
		return fmt.Errorf("seek to frame %d outside [0, %d]", frame, d.meta.TotalFrames)
	}
	d.cursor = frame
	return nil
}

// Next implements FrameSource. Dump frames carry no pixels; detectors and
// embedders driven from a dump work from the recorded data alone.
func (d *DumpFile) Next() (Frame, error) {
	if d.cursor >= d.meta.TotalFrames {
		return nil, io.EOF
	}
	f := dumpFrame{index: d.cursor, width: d.meta.Width, height: d.meta.Height}
	d.cursor++
	return f, nil
}

// Close implements FrameSource.
func (d *DumpFile) Close() error { return nil }

// Detect implements Detector by looking up the recorded detections for the
// frame index.
func (d *DumpFile) Detect(frame Frame) ([]Detection, error) {
	dets := d.frames[frame.Index()]
	out := make([]Detection, len(dets))
	copy(out, dets)
	return out, nil
}

// FrameIndices returns the sorted frame indices that carry detections.
// Used by tooling to inspect dumps.
func (d *DumpFile) FrameIndices() []int {
	idx := make([]int, 0, len(d.frames))
	for k := range d.frames {
		idx = append(idx, k)
	}
	sort.Ints(idx)
	return idx
}

type dumpFrame struct {
	index  int
	width  int
	height int
}

func (f dumpFrame) Index() int                 { return f.index }
func (f dumpFrame) Bounds() (width, height int) { return f.width, f.height }
