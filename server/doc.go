/*
Package server connects a host viewer to the curation volumes.  An Adapter
serializes transfer, export, relabel and session commands against one volume store
and pushes copies of changed label volumes to registered displays once each
command completes.  The same operations are offered through an HTTP API so a
viewer in another process can drive them.

Configuration is read from a TOML file:

	[server]
	httpAddress = "localhost:8000"
	cors_origins = ["http://localhost:3000"]
	region_mode = "value"   # or "connected"

	[logging]
	logfile = "/tmp/neuropil.log"
	max_log_size = 500 # MB
	max_log_age = 30   # days

	[export]
	format = "auto"    # auto, gray8, gray16 or rgba64
	prefix = "lbl"
	dir = "exports"    # or a bucket like "gs://mybucket/exports"

	[mutations]
	logfile = "mutations.log"

	[session]
	path = "sessions"
	compression = "zstd"   # or "snappy" or "none"

	[volumes.image]
	dir = "data/grayscale"
	prefix = "img"

	[volumes.source]
	dir = "data/segmentation"
	prefix = "seg"

	[volumes.destination]
	dir = "data/proofread"
	prefix = "lbl"

Relative paths are relative to the configuration file.  A missing destination
stack starts the session with an empty destination volume.
*/
package server
