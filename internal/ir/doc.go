// Package ir provides the core data types shared by the sequence compiler,
// playback engine, store, and harness.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps ir the foundational
// layer with no circular dependencies.
//
// Key design constraints:
//   - Timeline positions are quantized integer Ticks, never floats
//   - Playback events are totally ordered by (Time, declaration order)
//   - All JSON tags use snake_case
//   - Canonical JSON (used for hashing) forbids floats; hash quantized values
package ir
