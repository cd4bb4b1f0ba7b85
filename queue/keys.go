package queue

// Redis key namespace for the admission gate. Each structure kind carries a
// stable prefix so resources never collide across kinds.

func WaitingKey(resourceID string) string {
	return "queue:waiting:" + resourceID
}

func ProcessingKey(resourceID string) string {
	return "queue:processing:" + resourceID
}

// PromoteLockKey serializes every promotion decision for one resource.
func PromoteLockKey(resourceID string) string {
	return "lock:promote:" + resourceID
}

// UserLockKey serializes registration per (resource, user) so one user's
// duplicate check never blocks other users.
func UserLockKey(resourceID, userID string) string {
	return "lock:user:" + resourceID + ":" + userID
}
