package presentation

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/sglre6355/steam-stalker/internal/usecase"
)

func TestClassifyRESTError(t *testing.T) {
	plain := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "unknown message code",
			err: &discordgo.RESTError{
				Response: &http.Response{StatusCode: http.StatusBadRequest},
				Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMessage, Message: "Unknown Message"},
			},
			want: true,
		},
		{
			name: "not found status",
			err:  &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}},
			want: true,
		},
		{
			name: "other rest error",
			err: &discordgo.RESTError{
				Response: &http.Response{StatusCode: http.StatusForbidden},
				Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeMissingPermissions, Message: "Missing Permissions"},
			},
		},
		{
			name: "non rest error",
			err:  plain,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyRESTError(tt.err, discordgo.ErrCodeUnknownMessage, usecase.ErrMessageNotFound)
			if errors.Is(got, usecase.ErrMessageNotFound) != tt.want {
				t.Errorf("errors.Is(ErrMessageNotFound) = %v, want %v (err %v)", !tt.want, tt.want, got)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("classified error %v does not wrap the original", got)
			}
		})
	}
}

func TestResolveChannelUsesStateCache(t *testing.T) {
	state := discordgo.NewState()
	if err := state.GuildAdd(&discordgo.Guild{ID: "g1"}); err != nil {
		t.Fatalf("GuildAdd: %v", err)
	}
	if err := state.ChannelAdd(&discordgo.Channel{ID: "c1", GuildID: "g1"}); err != nil {
		t.Fatalf("ChannelAdd: %v", err)
	}

	publisher := NewDiscordCardPublisher(&discordgo.Session{State: state}, nil)
	if err := publisher.ResolveChannel(context.Background(), "c1"); err != nil {
		t.Errorf("ResolveChannel: %v", err)
	}
	if err := publisher.ResolveChannel(context.Background(), ""); !errors.Is(err, usecase.ErrChannelNotFound) {
		t.Errorf("ResolveChannel(\"\") error = %v, want ErrChannelNotFound", err)
	}
}

func TestPublisherWithoutSession(t *testing.T) {
	publisher := NewDiscordCardPublisher(nil, nil)
	ctx := context.Background()

	if err := publisher.ResolveChannel(ctx, "c1"); err == nil {
		t.Error("ResolveChannel: expected an error")
	}
	if _, err := publisher.SendCards(ctx, "c1", nil); err == nil {
		t.Error("SendCards: expected an error")
	}
	if err := publisher.EditCards(ctx, "c1", "m1", nil); err == nil {
		t.Error("EditCards: expected an error")
	}
}

func TestStatusSetterGuildCount(t *testing.T) {
	state := discordgo.NewState()
	for _, id := range []string{"g1", "g2", "g3"} {
		if err := state.GuildAdd(&discordgo.Guild{ID: id}); err != nil {
			t.Fatalf("GuildAdd: %v", err)
		}
	}

	setter := NewDiscordStatusSetter(&discordgo.Session{State: state})
	if got := setter.GuildCount(); got != 3 {
		t.Errorf("GuildCount = %d, want 3", got)
	}
	if got := NewDiscordStatusSetter(nil).GuildCount(); got != 0 {
		t.Errorf("GuildCount without session = %d, want 0", got)
	}
}
