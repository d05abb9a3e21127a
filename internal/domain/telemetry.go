package domain

import "time"

// TelemetryName is the metric an event feeds.
type TelemetryName string

const (
	MetricOpenChat               TelemetryName = "chat_openChat"
	MetricCloseChat              TelemetryName = "chat_closeChat"
	MetricTabFocus               TelemetryName = "chat_tabFocus"
	MetricEnterFocusChat         TelemetryName = "chat_enterFocusChat"
	MetricExitFocusChat          TelemetryName = "chat_exitFocusChat"
	MetricEnterFocusConversation TelemetryName = "chat_enterFocusConversation"
	MetricStartConversation      TelemetryName = "chat_startConversation"
	MetricMessageResponseError   TelemetryName = "chat_messageResponseError"
	MetricInteractWithMessage    TelemetryName = "chat_interactWithMessage"
	MetricFeedback               TelemetryName = "chat_feedback"
	MetricRunCommand             TelemetryName = "chat_runCommand"
	MetricEditorContextCommand   TelemetryName = "chat_editorContextCommand"
	MetricOnboardingInteraction  TelemetryName = "chat_onboardingInteraction"
)

// TelemetryEvent is one recorded interaction.
type TelemetryEvent struct {
	Name       TelemetryName
	TabID      TabID
	TriggerID  TriggerID
	Attributes map[string]any
	At         time.Time
}
