// Package mailer implements the backends that deliver an exported artifact:
// a multipart form endpoint and Microsoft Graph sendMail.
//
// Transports only report success or failure. Delivery tracking and retries
// are left to the backend and the caller respectively.
package mailer
