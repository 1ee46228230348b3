// Package ids generates time-sortable identifiers for background work.
package ids

import "github.com/segmentio/ksuid"

func New() string {
	return ksuid.New().String()
}
