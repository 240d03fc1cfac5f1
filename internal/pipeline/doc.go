// Package pipeline provides a framework for executing run steps in sequence.
//
// A scan goes through three stages: crawling GitHub for the target,
// recording the run in the history database, and writing the output file.
// Each stage is implemented as a Step that receives the current report and
// can modify it.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It lets an interrupted run still reach the steps that persist it
package pipeline
