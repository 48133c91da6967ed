package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"zapcrm/models"
	"zapcrm/repository"
	"zapcrm/tools"
)

// ContactReconciler faz o upsert de Contact a partir dos chats do Gateway.
type ContactReconciler struct {
	contacts repository.ContactRepository
	now      func() time.Time
}

func NewContactReconciler(contacts repository.ContactRepository) *ContactReconciler {
	return &ContactReconciler{contacts: contacts, now: time.Now}
}

// Reconcile upserts the contact of one chat record. The contact is nil when the outcome is an error.
func (r *ContactReconciler) Reconcile(ctx context.Context, orgID int64, chat tools.GatewayChat) (*models.Contact, ItemOutcome) {
	key := chat.RemoteJid
	phone := tools.PhoneFromRemoteJid(chat.RemoteJid)
	if phone == "" {
		return nil, r.fail(orgID, key, errors.New("remoteJid vazio"))
	}
	pushName := strings.TrimSpace(chat.PushName)
	patch := r.metadataPatch(chat, pushName)

	existing, err := r.contacts.FindByPhone(ctx, orgID, phone)
	if errors.Is(err, repository.ErrNotFound) {
		name := pushName
		if name == "" {
			name = "Contato " + phone
		}
		contact := &models.Contact{
			OrganizationID: orgID,
			PhoneNumber:    phone,
			Name:           name,
			ExternalID:     chat.ID,
			Metadata:       models.JSONMap{}.Merge(patch),
		}
		createErr := r.contacts.Create(ctx, contact)
		if createErr == nil {
			return contact, created(KIND_CONTACT, key, contact.ID)
		}
		// outro sync criou o mesmo contato no meio do caminho: segue como update
		existing, err = r.contacts.FindByPhone(ctx, orgID, phone)
		if err != nil {
			return nil, r.fail(orgID, key, fmt.Errorf("create contact %s: %w", phone, createErr))
		}
	} else if err != nil {
		return nil, r.fail(orgID, key, fmt.Errorf("find contact %s: %w", phone, err))
	}

	metadata := existing.Metadata.Merge(patch)
	if err := r.contacts.UpdateProfile(ctx, orgID, existing.ID, pushName, metadata); err != nil {
		return nil, r.fail(orgID, key, fmt.Errorf("update contact %d: %w", existing.ID, err))
	}
	existing.Metadata = metadata
	if pushName != "" {
		existing.Name = pushName
	}
	return existing, updated(KIND_CONTACT, key, existing.ID)
}

// metadataPatch only carries the fields present in the record, so known values are never blanked.
func (r *ContactReconciler) metadataPatch(chat tools.GatewayChat, pushName string) map[string]interface{} {
	patch := map[string]interface{}{
		"remoteJid":   chat.RemoteJid,
		"lastUpdated": r.now().UTC().Format(time.RFC3339),
	}
	if pushName != "" {
		patch["pushName"] = pushName
	}
	if pic := strings.TrimSpace(chat.ProfilePicURL); pic != "" {
		patch["profilePicUrl"] = pic
	}
	return patch
}

func (r *ContactReconciler) fail(orgID int64, key string, err error) ItemOutcome {
	log.Printf("sync: contact reconcile failed org=%d remoteJid=%q err=%v", orgID, key, err)
	return failed(KIND_CONTACT, key, err)
}
