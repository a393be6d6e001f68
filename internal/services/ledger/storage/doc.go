// Implementations live in the memory and sqlite subpackages; both seal
// appended events with the integrity package.
package storage
