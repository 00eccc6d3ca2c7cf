package client

import "time"

func (i *Identity) SetClock(now func() time.Time) {
	i.now = now
}
