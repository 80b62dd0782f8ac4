// Package events carries task lifecycle notifications from the service layer
// to interested handlers, such as the task-list cache invalidator. Handlers
// run synchronously, so every handler has finished by the time EmitEvent
// returns.
package events
