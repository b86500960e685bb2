package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"cipherlink/internal/service/chat"
	"cipherlink/internal/utils/log"
)

type (
	ui struct {
		app     *tview.Application
		chatbox *tview.TextView
		input   *tview.InputField

		client         *chat.Client
		conversationID string
		selfID         string
	}
)

func newUI(client *chat.Client, conversationID, selfID string) *ui {
	return &ui{
		app:            tview.NewApplication(),
		client:         client,
		conversationID: conversationID,
		selfID:         selfID,
	}
}

// blocking function
func (u *ui) run() {
	u.chatbox = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	u.chatbox.SetBorder(true).SetTitle(fmt.Sprintf(" Conversation %s ", u.conversationID))

	u.input = tview.NewInputField().
		SetLabel("Message: ").
		SetFieldWidth(0)
	u.input.SetBorder(true).SetTitle(" New Message (/revoke <id>, /delete <id>) ")

	remove := u.client.AddListener(u.onEvent)
	defer remove()

	u.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := u.input.GetText()
		if text == "" {
			return
		}
		u.input.SetText("")

		go u.dispatch(text)
	})

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(u.chatbox, 0, 1, false).
		AddItem(u.input, 3, 0, true)

	if err := u.app.SetRoot(layout, true).SetFocus(u.input).Run(); err != nil {
		log.Fatal("cannot init app", zap.Error(err))
	}
}

func (u *ui) dispatch(text string) {
	ctx := context.Background()

	var err error
	switch {
	case strings.HasPrefix(text, "/revoke "):
		err = u.client.Revoke(ctx, u.conversationID, strings.TrimPrefix(text, "/revoke "))
	case strings.HasPrefix(text, "/delete "):
		id := strings.TrimPrefix(text, "/delete ")
		if err = u.client.Delete(id); err == nil {
			u.append(fmt.Sprintf("[gray]deleted %s locally[-]", id))
		}
	default:
		_, err = u.client.Send(ctx, u.conversationID, text)
	}

	if err != nil {
		u.append(fmt.Sprintf("[red]error: %v[-]", err))
	}
}

func (u *ui) onEvent(ev chat.Event) {
	switch ev.Kind {
	case chat.EventMessageReceived:
		who := ev.Message.SenderID
		color := "green"
		if who == u.selfID {
			who = "You"
			color = "yellow"
		}
		u.append(fmt.Sprintf("[%s]%s:[-] %s  [gray](%s)[-]", color, who, ev.Message.Text, ev.Message.ID[:8]))
	case chat.EventMessageRevoked:
		u.append(fmt.Sprintf("[red]message %s revoked[-]", ev.Message.ID[:8]))
	}
}

func (u *ui) append(line string) {
	u.app.QueueUpdateDraw(func() {
		fmt.Fprintln(u.chatbox, line)
		u.chatbox.ScrollToEnd()
	})
}
