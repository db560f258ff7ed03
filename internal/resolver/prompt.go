package resolver

import (
	"fmt"

	"github.com/gnzdotmx/smartscenecutter/internal/clips"
	"github.com/gnzdotmx/smartscenecutter/internal/services/llm"
)

// SystemInstruction returns the instruction sent with every prompt for a
// video whose length is the formatted duration.
func SystemInstruction(duration string) string {
	return fmt.Sprintf(`You are a video editing assistant. Read the user's request and turn it into time ranges for video clips. The video is %[1]s long.

Rules:
1. Every explicit time range in the request (for example "2:00-4:30" or "from 1:10:05 to 1:12:00") becomes one clip in HH:MM:SS format with type '%[2]s'.
2. Every descriptive scene request (for example "all fight scenes" or "emotional dialogue") becomes one or more clips with plausible start and end times you choose yourself, with type '%[3]s'. Never refuse such a request.
3. A clip's endTime must be later than its startTime.
4. A clip's endTime must not be later than %[1]s.
5. startTime and endTime are always written as HH:MM:SS. For example '2:30' is written '00:02:30'.
6. Answer ONLY with JSON that matches the provided schema. No introduction, explanation or markdown around it.
`, duration, clips.Manual, clips.AIDetected)
}

// ResponseSchema describes the expected answer: an array of clip objects
func ResponseSchema() *llm.Schema {
	origins := make([]string, len(clips.Origins))
	for i, o := range clips.Origins {
		origins[i] = string(o)
	}
	return &llm.Schema{
		Type: "array",
		Items: &llm.Schema{
			Type: "object",
			Properties: map[string]*llm.Schema{
				"startTime": {
					Type:        "string",
					Description: "Start time in HH:MM:SS format.",
				},
				"endTime": {
					Type:        "string",
					Description: "End time in HH:MM:SS format.",
				},
				"type": {
					Type:        "string",
					Description: fmt.Sprintf("Either '%s' or '%s'.", clips.Manual, clips.AIDetected),
					Enum:        origins,
				},
				"description": {
					Type:        "string",
					Description: "A short description, or the original text from the request for this clip.",
				},
			},
			Required: []string{"startTime", "endTime", "type", "description"},
		},
	}
}
