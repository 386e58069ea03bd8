// Package ytdlp is the boundary to the external yt-dlp downloader.
//
// The Client shells out to the yt-dlp executable through a Runner, so tests
// substitute a fake and never touch the network. Every recognized option is
// a field on Options; nothing is passed as an untyped map. Three operations
// are exposed: ResolveEntries lists the videos behind a playlist or channel,
// FetchAudio downloads one URL as audio after a duplicate check against the
// output directory, and FetchSubtitles writes caption files named with the
// "[ID] - YYYY-MM-DD" tag the tagger package consumes.
package ytdlp
