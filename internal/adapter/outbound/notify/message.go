package notify

import (
	"fmt"
	"strings"

	"github.com/approvenow/server/internal/model"
)

// Message is a composed email.
type Message struct {
	Subject string
	Body    string
}

// Compose builds the subject and plain-text body for an intent.
func Compose(intent *model.NotificationIntent) (*Message, error) {
	d := intent.Data
	switch intent.Kind {
	case model.NotificationInvitation:
		return composeInvitation(d), nil
	case model.NotificationApprovalRequest:
		return &Message{
			Subject: "Approval needed: " + d["requestTitle"],
			Body: lines(
				fmt.Sprintf("A request in %s is waiting for your approval.", orDefault(d["workspaceName"], "your workspace")),
				"",
				"Request: "+d["requestTitle"],
				fmt.Sprintf("Level: %s of %s", d["level"], d["totalLevels"]),
				"",
				"Review it here: "+d["requestLink"],
			),
		}, nil
	case model.NotificationApprovalCompleted:
		return &Message{
			Subject: "Request approved: " + d["requestTitle"],
			Body: lines(
				fmt.Sprintf("Your request %q has been approved at every level.", d["requestTitle"]),
				"",
				"View it here: "+d["requestLink"],
			),
		}, nil
	case model.NotificationRequestRejected:
		body := []string{
			fmt.Sprintf("Your request %q was rejected.", d["requestTitle"]),
		}
		if reason := d["reason"]; reason != "" {
			body = append(body, "", "Reason: "+reason)
		}
		body = append(body, "", "View it here: "+d["requestLink"])
		return &Message{
			Subject: "Request rejected: " + d["requestTitle"],
			Body:    lines(body...),
		}, nil
	default:
		return nil, fmt.Errorf("unknown notification kind %q", intent.Kind)
	}
}

func composeInvitation(d map[string]string) *Message {
	inviter := orDefault(d["inviterName"], "Someone")
	workspace := orDefault(d["workspaceName"], "a workspace")

	body := []string{
		fmt.Sprintf("%s invited you to join %s as %s.", inviter, workspace, d["role"]),
		"",
		"With this role you can:",
	}
	for _, p := range strings.Split(d["permissions"], "\n") {
		if p != "" {
			body = append(body, "  - "+p)
		}
	}
	body = append(body,
		"",
		"Accept the invitation: "+d["inviteLink"],
		"Not interested? Decline: "+d["rejectLink"],
		"",
		fmt.Sprintf("This invitation expires in %s days.", orDefault(d["expiresInDays"], "7")),
	)

	return &Message{
		Subject: fmt.Sprintf("%s invited you to join %s", inviter, workspace),
		Body:    lines(body...),
	}
}

func lines(l ...string) string {
	return strings.Join(l, "\n") + "\n"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
