// Package http serves the NestSync JSON API.
//
// Routes mount under a configurable base path (default /api/v1):
//   - System: /healthz, /readyz, /info, /schemas, /schemas/{resource}
//   - Accounts: /users/me, /users/me/consents
//   - Families: /families, /families/{id}, member and invitation subroutes,
//     /invitations/{code}/accept
//   - Children: /families/{id}/children, /children/{id}, /children/{id}/advisory
//   - Inventory: /children/{id}/inventory, /inventory/{id}, usage and
//     projection subroutes
//   - Notifications: /families/{id}/notification-preferences, /notifications,
//     /notifications/{id}/read
//   - Billing: /billing/plans, /families/{id}/subscription,
//     /families/{id}/billing-records, /webhooks/billing
//
// Mutations are authorized inside the services; family-scoped reads are gated
// here through the permission checker the auth middleware installs. Health,
// info, and webhook routes skip authentication.
package http
