// Package level provides level management for the snake game.
//
// The level package handles:
//   - Loading level files (*.level) from a directory with caching
//   - The built-in classic level, served when no classic file exists
//   - Saving new levels after validating them with the engine parser
//   - Reachability analysis of a level's free space
//
// Level names are restricted to lowercase letters, digits, '_' and '-', so a
// name always maps to a single file inside the level directory.
//
// Usage:
//
//	manager, err := level.NewManager("levels")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	lvl, err := manager.LoadLevel("classic")
//	report := level.Analyze(lvl)
//	if !report.OK() {
//		log.Println(report.Warnings)
//	}
package level
