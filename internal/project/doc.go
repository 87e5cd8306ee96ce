// Package project defines the project record, the status vocabulary and its
// display colors, the status aggregator that feeds the dashboard chart, and the
// filter/sort/paginate operations applied to a fetched snapshot.
package project
