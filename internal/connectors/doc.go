// Package connectors holds the sources of raw file-system events.
// The filesystem connector walks and watches the organised root.
package connectors
