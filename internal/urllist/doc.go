// Package urllist reads and writes url_yt.txt files, the plain-text URL
// lists that feed the audio and subtitle downloads.
package urllist
