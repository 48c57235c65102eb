// Package app contains the driver around the scheduling engine: it resolves a
// workload and an engine config, runs the simulation and renders the result,
// independent of any specific entrypoint like a CLI.
package app
