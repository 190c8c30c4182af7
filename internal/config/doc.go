// Package config loads the application's HCL configuration: the server and
// logging blocks plus the provider/model blocks that seed the store at
// startup. The HCL file is parsed once into a resolved Config; the rest of
// the application never touches HCL types.
package config
