// Package playlist reads, queries and writes extended M3U channel lists.
//
// [Parse] turns raw text into an ordered []Record. A record is kept only once both its
// #EXTINF metadata line and its locator line have been seen; incomplete records are
// reported as [models.Diagnostic] values instead of errors.
//
// [Query] selects records by display name and group. [FindFirst] returns the leftmost
// match, [FindAll] returns every match in ascending index order.
//
// [Render] writes records back out behind a provenance [Header]. For any input,
// Render(Parse(Render(Parse(x)))) equals Render(Parse(x)) given the same header.
package playlist
