// Package terminal drives the Contact-MP wizard from a line-based prompt.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hostcampaign/site/internal/mpcontact"
)

// Session reads commands from in and writes screens to out.
type Session struct {
	wizard    *mpcontact.Wizard
	in        *bufio.Scanner
	out       io.Writer
	clipboard mpcontact.Clipboard
	opener    mpcontact.URLOpener
}

// NewSession creates a prompt over wiz. clipboard and opener may be nil.
func NewSession(wiz *mpcontact.Wizard, in io.Reader, out io.Writer, clipboard mpcontact.Clipboard, opener mpcontact.URLOpener) *Session {
	return &Session{
		wizard:    wiz,
		in:        bufio.NewScanner(in),
		out:       out,
		clipboard: clipboard,
		opener:    opener,
	}
}

// errQuit ends the session normally.
var errQuit = errors.New("quit")

// Run loops until the user quits, input ends or ctx is done.
func (s *Session) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		switch st := s.wizard.State().(type) {
		case *mpcontact.LookupState:
			err = s.lookup(ctx, st)
		case *mpcontact.ComposeState:
			err = s.compose(ctx, st)
		case *mpcontact.PresentState:
			err = s.present(st)
		}
		if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (s *Session) readLine(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(s.in.Text()), nil
}

func (s *Session) lookup(ctx context.Context, st *mpcontact.LookupState) error {
	fmt.Fprintln(s.out, "\nStep 1 of 3: find your MP")
	if st.Err != "" {
		fmt.Fprintln(s.out, "  ! "+st.Err)
	}
	line, err := s.readLine("Postcode (q to quit): ")
	if err != nil {
		return err
	}
	if strings.EqualFold(line, "q") {
		return errQuit
	}
	if err := s.wizard.SetPostcode(line); err != nil {
		return err
	}
	op, err := s.wizard.SubmitPostcode(ctx)
	if err != nil {
		var verr *mpcontact.ValidationError
		if errors.As(err, &verr) {
			return nil
		}
		return err
	}
	fmt.Fprintln(s.out, "Looking up...")
	return s.await(ctx, op)
}

func (s *Session) compose(ctx context.Context, st *mpcontact.ComposeState) error {
	rep := st.Representative
	fmt.Fprintln(s.out, "\nStep 2 of 3: choose your concerns")
	fmt.Fprintf(s.out, "Your MP is %s (%s), %s\n", rep.Name, rep.Party, rep.Constituency)
	for i, opt := range mpcontact.Concerns() {
		mark := " "
		if st.Selected.Has(opt.ID) {
			mark = "x"
		}
		fmt.Fprintf(s.out, "  %d. [%s] %s\n", i+1, mark, opt.Label)
	}
	if st.Narrative != "" {
		fmt.Fprintf(s.out, "Your story: %s\n", st.Narrative)
	}
	if st.Err != "" {
		fmt.Fprintln(s.out, "  ! "+st.Err)
	}

	line, err := s.readLine("Number to toggle, s <text> for your story, g to generate, r to restart, q to quit: ")
	if err != nil {
		return err
	}
	cmd, arg, _ := strings.Cut(line, " ")
	switch strings.ToLower(cmd) {
	case "q":
		return errQuit
	case "r":
		return s.wizard.Restart()
	case "s":
		return s.wizard.SetNarrative(strings.TrimSpace(arg))
	case "g":
		op, err := s.wizard.GenerateMessage(ctx)
		if err != nil {
			var verr *mpcontact.ValidationError
			if errors.As(err, &verr) {
				return nil
			}
			return err
		}
		fmt.Fprintln(s.out, "Generating...")
		return s.await(ctx, op)
	}

	n, err := strconv.Atoi(cmd)
	opts := mpcontact.Concerns()
	if err != nil || n < 1 || n > len(opts) {
		fmt.Fprintln(s.out, "  ? unrecognised command")
		return nil
	}
	return s.wizard.ToggleConcern(opts[n-1].ID)
}

func (s *Session) present(st *mpcontact.PresentState) error {
	msg := st.Message
	fmt.Fprintln(s.out, "\nStep 3 of 3: send your email")
	fmt.Fprintf(s.out, "To:      %s\n", msg.RecipientEmail)
	fmt.Fprintf(s.out, "Subject: %s\n\n%s\n\n", msg.Subject, msg.Body)

	line, err := s.readLine("c <recipient|subject|body> to copy, o to open your email client, r to start over, q to quit: ")
	if err != nil {
		return err
	}
	cmd, arg, _ := strings.Cut(line, " ")
	switch strings.ToLower(cmd) {
	case "q":
		return errQuit
	case "r":
		return s.wizard.Restart()
	case "c":
		text, err := s.wizard.CopyField(mpcontact.Field(strings.TrimSpace(arg)), s.clipboard)
		if errors.Is(err, mpcontact.ErrUnknownField) {
			fmt.Fprintln(s.out, "  ? copy recipient, subject or body")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Copied %d characters\n", len(text))
		return nil
	case "o":
		link, err := s.wizard.OpenInEmailClient(s.opener)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, "If nothing opened, paste this link into your browser:")
		fmt.Fprintln(s.out, link)
		return nil
	}
	fmt.Fprintln(s.out, "  ? unrecognised command")
	return nil
}

// await blocks for op; failures are already recorded on the wizard state.
func (s *Session) await(ctx context.Context, op *mpcontact.Operation) error {
	if _, err := op.Wait(ctx); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}
