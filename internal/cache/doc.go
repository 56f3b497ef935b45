// Package cache provides a generic build-once cache.
//
// Cache[K, V] maps a key to the result of an expensive, deterministic build
// such as compiling a GPU program. The first caller for a key runs the
// build; everyone else waits for it and shares the result.
//
//	programs := cache.New[Format, ProgramID]()
//	id, err := programs.GetOrCreate(FormatRGB565, func() (ProgramID, error) {
//		return device.CompileProgram(src)
//	})
//
// Failed builds are cached as well. A deterministic build that failed once
// fails again, so callers see the first error instead of a retry.
//
// # Thread Safety
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
