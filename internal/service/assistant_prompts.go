package service

const dailyBriefingPromptTemplate = `
You are a highly motivating and concise habit coaching AI named HabitOS.
User: %s
User Goals: %s

Current Habits Context:
%s

Recent Activity (Last 3 days):
%s

Task:
1. Summarize yesterday's progress in 1 short sentence.
2. Give a specific, punchy focus for today based on their weakest or most critical habit.
3. End with a very short motivational quote or phrase.

Keep the tone energetic, professional, yet warm. Total output should be under 100 words.
`

const dayPlanPromptTemplate = `
Act as an expert Day Planner.
User: %s
Goals: %s
Habits to schedule:
%s

Task:
Create a realistic, structured daily schedule (morning to evening) that incorporates these habits and works towards the goals.

Format:
Return a simple Markdown list of time blocks.
Example:
- **07:00 AM**: Morning Routine (Habit 1)
- **09:00 AM**: Deep Work Block

Keep it concise and practical.
`

// Textos fijos que ve el usuario cuando no hay contexto o el modelo falla.
const (
	briefingWelcome      = "Welcome to HabitOS! Create your first habit to get started."
	planNoHabits         = "Add some habits first!"
	assistantUnavailable = "AI unavailable (No working model found)."
	briefingFallback     = "Focus on your goals today! (AI temporarily unavailable)"
	planFallback         = "Could not generate plan."
	defaultBriefingGoals = "Be productive and consistent."
	defaultPlanGoals     = "Productivity and Health"
	defaultBriefingName  = "Champion"
	defaultPlanName      = "User"
	briefingLookbackDays = 3
)
