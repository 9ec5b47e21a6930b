// Package batch loads a multi-request download manifest: a YAML or JSON
// file describing a sequence of independent download.Config-shaped jobs,
// each with its own bucket/prefix/regex/download-dir, run in turn by
// `gofetch batch --job FILE` (SPEC_FULL.md §3.4).
//
// This is a deliberately smaller surface than the teacher's crawl
// manifest: no JSON-schema validation pipeline, no connection/match/crawl/
// output sub-document nesting — plain Go field checks are enough for a
// handful of download jobs.
package batch

import "fmt"

// Manifest is a validated batch file: a list of Jobs run in order.
type Manifest struct {
	// Version is the manifest format version. Only "1" is recognized.
	Version string `json:"version" yaml:"version"`

	// Jobs is the ordered list of download requests to run.
	Jobs []Job `json:"jobs" yaml:"jobs"`
}

// Job describes a single download request within a batch manifest. Field
// names mirror the `gofetch get` flags, and the same tags both parse the
// manifest file and steer `--set key=value` override decoding.
type Job struct {
	// Name labels this job in logs and output records. Optional.
	Name string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name,omitempty"`

	// URI is the s3://bucket/prefix to download (required).
	URI string `json:"uri" yaml:"uri" mapstructure:"uri"`

	// Regex selects keys within URI (optional; empty matches everything).
	Regex string `json:"regex,omitempty" yaml:"regex,omitempty" mapstructure:"regex,omitempty"`

	// DownloadDir is the local directory this job downloads into.
	// Defaults to "." when empty.
	DownloadDir string `json:"download_dir,omitempty" yaml:"download_dir,omitempty" mapstructure:"download_dir,omitempty"`

	// Threads is this job's worker count. Zero uses the process default.
	Threads int `json:"threads,omitempty" yaml:"threads,omitempty" mapstructure:"threads,omitempty"`

	// ExcludeGlob lists doublestar globs excluded from this job.
	ExcludeGlob []string `json:"exclude_glob,omitempty" yaml:"exclude_glob,omitempty" mapstructure:"exclude_glob,omitempty"`

	// Region overrides the AWS region for this job only.
	Region string `json:"region,omitempty" yaml:"region,omitempty" mapstructure:"region,omitempty"`

	// Endpoint overrides the S3-compatible endpoint for this job only.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint,omitempty"`

	// Profile overrides the AWS profile for this job only.
	Profile string `json:"profile,omitempty" yaml:"profile,omitempty" mapstructure:"profile,omitempty"`
}

// Validate checks the required fields of a parsed Manifest.
func (m *Manifest) Validate() error {
	if m.Version == "" {
		return fmt.Errorf("batch: version is required")
	}
	if m.Version != "1" {
		return fmt.Errorf("batch: unsupported version %q (expected \"1\")", m.Version)
	}
	if len(m.Jobs) == 0 {
		return fmt.Errorf("batch: at least one job is required")
	}
	for i, j := range m.Jobs {
		if j.URI == "" {
			return fmt.Errorf("batch: jobs[%d]: uri is required", i)
		}
	}
	return nil
}

// ApplyDefaults fills in zero-valued optional fields.
func (m *Manifest) ApplyDefaults() {
	for i := range m.Jobs {
		if m.Jobs[i].DownloadDir == "" {
			m.Jobs[i].DownloadDir = "."
		}
	}
}
