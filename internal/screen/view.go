package screen

import (
	"fmt"
	"io"
	"strings"

	"github.com/UnknownOlympus/addressbook/internal/models"
)

// Card actions.
const (
	ActionEdit       = "edit"
	ActionSetDefault = "set-default"
	ActionDelete     = "delete"
)

const (
	MsgEmptyState = "Add your first address to get started with deliveries"

	TitleAddForm  = "Add New Address"
	TitleEditForm = "Edit Address"
	LabelSave     = "Save Address"
	LabelUpdate   = "Update Address"
)

// Card is one saved address as shown in the list.
type Card struct {
	ID      string
	Title   string
	Lines   []string
	Default bool
	Actions []string
}

// FormView is the add/edit form.
type FormView struct {
	Title       string
	SubmitLabel string
	Values      models.Address
	Locating    bool
}

// View is what the screen currently shows.
type View struct {
	Mode         Mode
	Loading      bool
	Cards        []Card
	EmptyMessage string
	Form         *FormView
}

// View builds the render model for the current state.
func (s *Screen) View() View {
	view := View{Mode: s.mode, Loading: s.loading}

	if s.mode == ModeForm {
		form := &FormView{
			Title:       TitleAddForm,
			SubmitLabel: LabelSave,
			Values:      s.form,
			Locating:    s.locating,
		}
		if s.editingID != "" {
			form.Title = TitleEditForm
			form.SubmitLabel = LabelUpdate
		}
		view.Form = form
		return view
	}

	addresses := s.store.Addresses()
	if len(addresses) == 0 {
		view.EmptyMessage = MsgEmptyState
		return view
	}

	for _, addr := range addresses {
		view.Cards = append(view.Cards, newCard(addr, len(addresses)))
	}

	return view
}

func newCard(addr models.Address, total int) Card {
	lines := []string{addr.Phone, addr.AddressLine1}
	if addr.AddressLine2 != "" {
		lines = append(lines, addr.AddressLine2)
	}
	lines = append(lines, fmt.Sprintf("%s, %s - %s", addr.City, addr.State, addr.Pincode), addr.Country)

	actions := []string{ActionEdit}
	if !addr.IsDefault {
		actions = append(actions, ActionSetDefault)
	}
	if total > 1 {
		actions = append(actions, ActionDelete)
	}

	return Card{
		ID:      addr.ID,
		Title:   addr.Name,
		Lines:   lines,
		Default: addr.IsDefault,
		Actions: actions,
	}
}

// Render writes a plain-text rendering of the view.
func (v View) Render(w io.Writer) error {
	var b strings.Builder

	switch {
	case v.Loading:
		b.WriteString("Loading addresses...\n")
	case v.Form != nil:
		fmt.Fprintf(&b, "== %s ==\n", v.Form.Title)
		vals := v.Form.Values
		for _, field := range []struct{ name, value string }{
			{FieldName, vals.Name},
			{FieldPhone, vals.Phone},
			{FieldAddressLine1, vals.AddressLine1},
			{FieldAddressLine2, vals.AddressLine2},
			{FieldCity, vals.City},
			{FieldState, vals.State},
			{FieldPincode, vals.Pincode},
			{FieldCountry, vals.Country},
		} {
			fmt.Fprintf(&b, "  %-13s %s\n", field.name+":", field.value)
		}
		if coords, ok := vals.Coordinates(); ok {
			fmt.Fprintf(&b, "  %-13s %.4f, %.4f\n", "location:", coords.Latitude, coords.Longitude)
		}
		if v.Form.Locating {
			b.WriteString("  Getting location...\n")
		}
		fmt.Fprintf(&b, "[save] %s  [cancel]\n", v.Form.SubmitLabel)
	case len(v.Cards) == 0:
		fmt.Fprintf(&b, "%s\n", v.EmptyMessage)
	default:
		for _, card := range v.Cards {
			title := card.Title
			if card.Default {
				title += " (Default)"
			}
			fmt.Fprintf(&b, "#%s %s\n", card.ID, title)
			for _, line := range card.Lines {
				fmt.Fprintf(&b, "    %s\n", line)
			}
			fmt.Fprintf(&b, "    actions: %s\n", strings.Join(card.Actions, ", "))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
