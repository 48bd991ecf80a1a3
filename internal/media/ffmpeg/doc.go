// Package ffmpeg builds and executes the ffmpeg invocations used by the clip
// render pipeline: window trims, audio extraction, scene re-framing ("fill"
// crops and "fit" blurred letterboxes), concatenation, and subtitle burns.
//
// Argument construction is separated from execution so command lines can be
// tested without ffmpeg installed.
package ffmpeg
