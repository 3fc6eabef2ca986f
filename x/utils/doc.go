/*
Package utils contains decorators shared by every application stack:
panic recovery, logging, savepoints, action events and delivery metrics.
*/
package utils
