package server

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/janelia-flyem/neuropil/core"
	"github.com/janelia-flyem/neuropil/slices"
	"github.com/janelia-flyem/neuropil/volume"
)

const (
	// DefaultWebAddress is the default URL of the neuropil web server
	DefaultWebAddress = "localhost:8000"

	// DefaultExportPrefix is the file name prefix of exported slices if none is given.
	DefaultExportPrefix = "labels"
)

var (
	// the parsed TOML configuration data
	tc tomlConfig

	// the TOML config file location
	tcLocation string
)

type tomlConfig struct {
	Server    serverConfig
	Logging   core.LogConfig
	Export    exportConfig
	Mutations mutationsConfig
	Session   sessionConfig
	Volumes   volumesConfig
}

type serverConfig struct {
	HTTPAddress string   `toml:"httpAddress"`
	CorsOrigins []string `toml:"cors_origins"`
	RegionMode  string   `toml:"region_mode"` // "value" or "connected"
}

type exportConfig struct {
	Format string // "auto", "gray8", "gray16" or "rgba64"
	Prefix string
	Dir    string // local directory or bucket URL used when a request gives none
}

type mutationsConfig struct {
	Logfile string
}

type sessionConfig struct {
	Path        string
	Compression string // "zstd" (default), "snappy" or "none"
}

// sliceStack names a directory of slice images and their file name prefix.
type sliceStack struct {
	Dir    string
	Prefix string
}

type volumesConfig struct {
	Image       sliceStack
	Source      sliceStack
	Destination sliceStack
}

// Some settings in the TOML can be given as relative paths.
// This function converts them in-place to absolute paths,
// assuming the given paths were relative to the TOML file's own directory.
func (c *tomlConfig) convertPathsToAbsolute(configPath string) error {
	configDir := filepath.Dir(configPath)
	paths := map[string]*string{
		"logging.logfile":         &c.Logging.Logfile,
		"export.dir":              &c.Export.Dir,
		"mutations.logfile":       &c.Mutations.Logfile,
		"session.path":            &c.Session.Path,
		"volumes.image.dir":       &c.Volumes.Image.Dir,
		"volumes.source.dir":      &c.Volumes.Source.Dir,
		"volumes.destination.dir": &c.Volumes.Destination.Dir,
	}
	for name, path := range paths {
		absPath, err := core.ConvertToAbsolute(*path, configDir)
		if err != nil {
			return fmt.Errorf("Error converting %s setting to absolute path: %v", name, err)
		}
		*path = absPath
	}
	return nil
}

// validate checks settings that are parsed into typed values.
func (c *tomlConfig) validate() error {
	if _, err := volume.ParseRegionMode(c.Server.RegionMode); err != nil {
		return fmt.Errorf("[server] region_mode: %v", err)
	}
	if _, err := core.ParsePixelFormat(c.Export.Format); err != nil {
		return fmt.Errorf("[export] format: %v", err)
	}
	if _, err := core.ParseCompression(c.Session.Compression); err != nil {
		return fmt.Errorf("[session] compression: %v", err)
	}
	if c.Export.Dir != "" && !slices.IsBucketRef(c.Export.Dir) {
		if fi, err := os.Stat(c.Export.Dir); err != nil || !fi.IsDir() {
			core.Warningf("Default export directory %s is not an existing directory\n", c.Export.Dir)
		}
	}
	return nil
}

// LoadConfig loads server configuration from a TOML file.  A non-empty
// httpAddress overrides the one in the file.
func LoadConfig(filename, httpAddress string) error {
	if filename == "" {
		return fmt.Errorf("no server TOML configuration file provided")
	}
	var c tomlConfig
	if _, err := toml.DecodeFile(filename, &c); err != nil {
		return fmt.Errorf("could not decode TOML config: %v", err)
	}
	if err := c.convertPathsToAbsolute(filename); err != nil {
		return fmt.Errorf("could not convert relative paths to absolute paths in TOML config: %v", err)
	}
	if httpAddress != "" {
		c.Server.HTTPAddress = httpAddress
	}
	if err := c.validate(); err != nil {
		return err
	}
	tc = c
	tcLocation = filename
	core.Infof("tomlConfig: %v\n", tc)
	return nil
}

func ConfigLocation() string {
	return tcLocation
}

func HTTPAddress() string {
	if tc.Server.HTTPAddress == "" {
		return DefaultWebAddress
	}
	return tc.Server.HTTPAddress
}

func CorsOrigins() []string {
	return tc.Server.CorsOrigins
}

// RegionMode returns the configured region selection, which defaults to
// whole-volume label equality.
func RegionMode() volume.RegionMode {
	mode, _ := volume.ParseRegionMode(tc.Server.RegionMode)
	return mode
}

// ExportFormat returns the configured slice pixel format.
func ExportFormat() core.PixelFormat {
	format, _ := core.ParsePixelFormat(tc.Export.Format)
	return format
}

func ExportPrefix() string {
	if tc.Export.Prefix == "" {
		return DefaultExportPrefix
	}
	return tc.Export.Prefix
}

func ExportDir() string {
	return tc.Export.Dir
}

func MutationLogPath() string {
	return tc.Mutations.Logfile
}

func SessionPath() string {
	return tc.Session.Path
}

// SessionCompression returns the compression of saved snapshots, zstd by default.
func SessionCompression() core.Compression {
	compress, _ := core.ParseCompression(tc.Session.Compression)
	return compress
}

func LogConfig() *core.LogConfig {
	return &tc.Logging
}
