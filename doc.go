/*
Package neuropil holds tools for manual proofreading of 3D neuron segmentation
label volumes.

A curation session pairs an intensity image volume with two label volumes: a
source segmentation and a destination volume that collects proofread neurons.
The viewer picks points and each point moves the labeled region under it from
the source to the destination.  Label volumes can be written as stacks of
per-slice PNG images whose pixel values equal the label identifiers.

Packages, from leaves to root:

	core       point, error and pixel format types, logging, serialization
	volume     label and image volumes held by one session
	transfer   moves labeled regions between volumes at query points
	slices     exports volumes as slice images and imports slice stacks
	mutlog     append-only log of mutations
	session    named snapshots of the label volumes in a badger store
	server     command adapter for a viewer and its HTTP API
	cmd/neuropil  command-line interface

Commands

In the following documentation, the type of brackets designate
<required parameter> and [optional parameter].

	neuropil about
	neuropil serve <config.toml>
	neuropil transfer <src dir> <src prefix> <points> <out dir> [<dst dir> <dst prefix>]
	neuropil export <dir> <prefix> <out dir>
	neuropil relabel <dir> <prefix> <out dir>
	neuropil mutations <log file>

See package server for the HTTP API and configuration file.
*/
package neuropil
