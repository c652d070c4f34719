// Package naming derives output file names. With rename enabled, episode
// releases such as "Show.Name.S01E02.Pilot.German.DL.1080p.WEB.x264" become
// "S01E02 - Pilot {source-Web}.mkv", tagged with edition and source markers
// for the library scanner. Names already in library format are kept.
package naming
