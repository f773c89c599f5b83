package manifest

// Manifest is the top-level output of a gifcap encode run. Animations are
// keyed by output name, so repeated runs into the same directory add to
// or replace entries.
type Manifest struct {
	Version     int                  `json:"version"`
	GeneratedAt string               `json:"generated_at"`
	Profile     string               `json:"profile"`
	BasePath    string               `json:"base_path"`
	BuildInfo   *BuildInfo           `json:"build_info,omitempty"`
	Animations  map[string]Animation `json:"animations"`
	Stats       Stats                `json:"stats"`
}

// BuildInfo captures encode parameters for diagnostics.
type BuildInfo struct {
	Workers int `json:"workers"`
	Quality int `json:"quality"` // 1-30, lower is better
	FPS     int `json:"fps"`
}

// Animation describes one encoded GIF and where it came from.
type Animation struct {
	Source        SourceInfo `json:"source"`
	Width         int        `json:"width"`
	Height        int        `json:"height"`
	Frames        int        `json:"frames"`
	DurationMS    int64      `json:"duration_ms"`
	Loop          int        `json:"loop"` // -1 plays once, 0 forever
	GlobalPalette bool       `json:"global_palette"`
	Range         string     `json:"range,omitempty"` // selected slice, e.g. "0:01-0:03"
	Size          int64      `json:"size"`            // bytes on disk
	Hash          string     `json:"hash"`            // first 16 hex chars of xxhash64
	Path          string     `json:"path"`            // relative to base_path
	Poster        *Still     `json:"poster,omitempty"`
}

// SourceInfo holds metadata about the input frame sequence.
type SourceInfo struct {
	Path   string `json:"path"`
	Kind   string `json:"kind"`   // "dir" or "spool"
	Frames int    `json:"frames"` // frames read before selection and dedupe
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Still is a single encoded poster frame.
type Still struct {
	Format string `json:"format"` // "png", "jpeg", "webp"
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   int64  `json:"size"`
	Hash   string `json:"hash"`
	Path   string `json:"path"`
}

// Stats aggregates run metrics.
type Stats struct {
	TotalAnimations  int   `json:"total_animations"`
	TotalFrames      int   `json:"total_frames"`
	TotalInputFrames int   `json:"total_input_frames"`
	TotalOutputBytes int64 `json:"total_output_bytes"`
	DroppedFrames    int   `json:"dropped_frames,omitempty"` // skipped by range or merged by dedupe
}

// SupportedManifestVersion is the current schema version.
const SupportedManifestVersion = 1

// FileName is the manifest's name inside an output directory.
const FileName = "gifcap.manifest.json"
