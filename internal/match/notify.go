package match

import "time"

type Notice string

const (
	NoticeRole     Notice = "role"
	NoticeReminder Notice = "reminder"
)

// NotificationPolicy decides which reminders a waiting player is owed. A
// threshold fires on the first evaluation whose elapsed time reaches it, so
// each fires once per queue stay regardless of tick cadence.
type NotificationPolicy struct {
	RoleAfter     time.Duration
	ReminderAfter time.Duration
}

// Due compares the elapsed wait at the previous evaluation with the current one.
func (p NotificationPolicy) Due(prevElapsed, elapsed time.Duration) []Notice {
	var out []Notice
	if crossed(prevElapsed, elapsed, p.RoleAfter) {
		out = append(out, NoticeRole)
	}
	if crossed(prevElapsed, elapsed, p.ReminderAfter) {
		out = append(out, NoticeReminder)
	}
	return out
}

func crossed(prev, now, threshold time.Duration) bool {
	return threshold > 0 && prev < threshold && now >= threshold
}
