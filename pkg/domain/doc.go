/*
Package domain contains the core vocabulary of the stepform engine.

It defines identifiers, control kinds, dependency effects, navigation
statuses, input events, render frames and the serialisable session snapshot.
The package is kept free of I/O and persistence concerns so that every
adapter (terminal, HTTP, MCP, storage) can share the same types.

# Key Entities

  - ControlID: dense, stable identifier of a control within a form.
  - Event: a logical input event delivered to a session (key press, selection, submit, cancel).
  - Frame / FrameDiff: renderer-agnostic draw instructions and their incremental updates.
  - Snapshot: the persisted runtime state of a form session.
  - Result: the value mapping handed to the host after submission.
*/
package domain
