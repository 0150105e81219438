/*
	Package core provides types, constants, and functions that have no other dependencies
	and can be used by all packages within neuropil.  This includes voxel coordinates,
	the error kinds returned by volume operations, leveled logging, serialization of
	volume data, and the packing of label slices into standard images.
*/
package core
