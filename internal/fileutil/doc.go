// Package fileutil prepares the directories sidecar writes to.
package fileutil
