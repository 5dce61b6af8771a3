package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"synvoy-client/internal/clock"
	"synvoy-client/internal/models"
	"synvoy-client/internal/repository"

	"github.com/rs/zerolog/log"
)

const successBannerDuration = 5 * time.Second

// ContactState is what the contact page renders
type ContactState struct {
	Form    models.ContactForm
	Loading bool
	Success bool
	Error   string
}

// ContactController validates and submits the contact form
type ContactController struct {
	contactRepo *repository.ContactRepository
	clock       clock.Clock

	mu         sync.Mutex
	state      ContactState
	resetTimer *clock.Timer
}

// NewContactController creates a new contact controller
func NewContactController(contactRepo *repository.ContactRepository, clk clock.Clock) *ContactController {
	if clk == nil {
		clk = clock.Real()
	}
	return &ContactController{contactRepo: contactRepo, clock: clk}
}

// State returns the current form state.
func (c *ContactController) State() ContactState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit validates and posts the form. On success the form is cleared and the
// success flag stays up for five seconds.
func (c *ContactController) Submit(ctx context.Context, form models.ContactForm) error {
	form = normalizeContact(form)

	c.mu.Lock()
	if c.state.Loading {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state.Form = form
	c.state.Error = ""
	c.state.Success = false
	c.mu.Unlock()

	if err := validateContact(form); err != nil {
		c.setError(err.Error())
		return err
	}

	c.mu.Lock()
	c.state.Loading = true
	c.mu.Unlock()

	_, err := c.contactRepo.SubmitContact(ctx, form)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Loading = false
	if err != nil {
		log.Error().Err(err).Str("email", form.Email).Msg("Failed to submit contact form")
		c.state.Error = repository.Message(err, "Failed to send message. Please try again.")
		return err
	}

	log.Info().Str("email", form.Email).Msg("Contact form submitted")
	c.state.Form = models.ContactForm{}
	c.state.Success = true
	if c.resetTimer != nil {
		c.resetTimer.Stop()
	}
	c.resetTimer = c.clock.AfterFunc(successBannerDuration, func() {
		c.mu.Lock()
		c.state.Success = false
		c.mu.Unlock()
	})
	return nil
}

// Close stops the pending success reset.
func (c *ContactController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resetTimer != nil {
		c.resetTimer.Stop()
		c.resetTimer = nil
	}
}

func (c *ContactController) setError(msg string) {
	c.mu.Lock()
	c.state.Error = msg
	c.mu.Unlock()
}

func normalizeContact(form models.ContactForm) models.ContactForm {
	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.TrimSpace(form.Email)
	form.Subject = strings.TrimSpace(form.Subject)
	form.Message = strings.TrimSpace(form.Message)
	if form.Phone != nil {
		phone := strings.TrimSpace(*form.Phone)
		form.Phone = nil
		if phone != "" {
			form.Phone = &phone
		}
	}
	return form
}

func validateContact(form models.ContactForm) error {
	if form.Name == "" {
		return &ValidationError{Problems: []string{"Name cannot be empty"}}
	}
	if form.Message == "" {
		return &ValidationError{Problems: []string{"Message cannot be empty"}}
	}
	return validateStruct(form)
}
