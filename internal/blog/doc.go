// Package blog stores authors and their posts in SQLite.
//
// Listings are paginated ten items at a time and accept an optional
// substring search. Deleting an author removes their posts.
package blog
