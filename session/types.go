package session

import "github.com/gonzalop/mqtt-embedded/model"

// Pid aliases model.Pid so the inflight-table bookkeeping below can use the
// short name while staying interchangeable with the value type application
// code sees in Request/Notification.
type Pid = model.Pid
