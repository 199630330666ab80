package pubsub

// Topic names used for cross-service events.
const (
	TopicAchievementEvents = "achievement.events"
	TopicHabitEvents       = "habit.events"
	TopicUserEvents        = "user.events"
)
