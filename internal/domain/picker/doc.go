// Package picker builds the "add console" VM list.
//
// Only running VMs are selectable; everything else is listed but disabled
// with a label such as "VM is stopped". VMs that already back a console are
// marked Open and stay selectable, since selecting them re-activates the
// existing console.
package picker
