// Package pagecap captures paginated on-screen content from a remote,
// script-controllable browser and assembles the captured pages into a
// single PDF, optionally with an invisible OCR text layer that makes the
// document full-text searchable without changing its appearance.
//
// The capture engine advances the remote content page by page, waits for
// rendering to visually settle instead of trusting a fixed delay, retries
// transient automation failures with bounded backoff, and supports
// pause/resume/cancel mid-run without losing already-captured pages. A
// batch processor feeds multiple sources through one session with
// per-item failure isolation.
//
// This package contains domain types and interfaces following Ben
// Johnson's Standard Package Layout. Implementations live in
// subdirectories named after their primary dependency (e.g., rod/,
// pdfcpu/, tesseract/); orchestration packages are named by function
// (capture/, batch/).
package pagecap
